// Runs a bare servent: it listens on a UDP port, admits pings and
// installs pong demultiplexing for them, admits pongs and queries, and
// looks up push routes, then logs every Push this servent itself is the
// target of. It transmits nothing: no pong replies, forwarded queries
// or routed pushes are sent, and the servent never invokes the Query
// Hit callback set here. It never joins the query results to a real
// shared library — wiring package external's SharedLibrary contract to
// an actual file index is deliberately out of scope (spec.md §1).
//
// There is a builtin web server that can be used to collect debugging
// stats from http://localhost:8711/debug/vars.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gnutella/logger"
	"gnutella/servent"
	"gnutella/servpeer"
)

const httpPortTCP = 8711

func main() {
	cfg := servent.NewConfig()
	servent.RegisterFlags(flag.CommandLine, cfg)
	flag.Parse()

	// For debugging: http://localhost:8711/debug/vars exposes every
	// expvar counter the message plane bumps (router drops, pong cache
	// hit/miss, vmsg unknown dispatches, ...).
	go http.ListenAndServe(fmt.Sprintf(":%d", httpPortTCP), nil)

	log := &logger.StdLogger{}
	s, err := servent.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "servent.New error: %v\n", err)
		os.Exit(1)
	}

	s.OnQueryHit = func(packet []byte, recipient *servpeer.Peer) {
		log.Infof("query hit: %d bytes -> peer %v", len(packet), recipient.Addr)
	}
	s.OnPushReceived = func(targetGUID [16]byte, targetIP net.IP, targetPort uint16) {
		log.Infof("push for %x received, target %v:%d", targetGUID, targetIP, targetPort)
	}

	if err := s.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "servent.Start error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("servent %x listening", s.Core().GUID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	s.Stop()
}
