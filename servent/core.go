package servent

import (
	"net"

	"gnutella/guid"
	"gnutella/hostiles"
	"gnutella/logger"
	"gnutella/pong"
	"gnutella/qhit"
	"gnutella/query"
	"gnutella/router"
	"gnutella/servpeer"
	"gnutella/vmsg"
)

// Core is the single-process-wide context every message-plane
// subsystem shares (spec.md §2 "organised as a pipeline over an
// in-process event loop"): one Router, one pong Cache, one query
// Pipeline, one vendor-message Dispatcher, the push-proxy map and
// banned-GUID/hostile filters Push routing consults, and this
// servent's own persisted GUID.
type Core struct {
	Config *Config
	Log    logger.DebugLogger

	GUID  guid.GUID
	Store *guid.Store

	Registry    *servpeer.Registry
	Router      *router.Router
	Pongs       *pong.Cache
	Queries     *query.Pipeline
	Vmsg        *vmsg.Dispatcher
	Proxies     *PushProxyMap
	QueryStatus *QueryStatusTable

	Banned  *hostiles.BannedGUIDs
	Hostile *hostiles.Filter

	// OurPushProxies is the set of externally-reachable ip:port
	// addresses our own Push-Proxy-Request has been acknowledged at
	// (spec.md §4.5 Push-Proxy-Ack: "the proxy's externally reachable
	// address"), capped at Config.Qhit.MaxPushProxies. A query-hit
	// session's VendorInfo.PushProxies is populated from this slice by
	// whatever builds the Session (qhit.Builder itself stays ignorant
	// of where the addresses came from).
	OurPushProxies []qhit.AltLocation
}

// NewCore builds every subsystem from cfg, loading (or generating and
// persisting) the servent GUID per spec.md §6: "regenerate on start if
// absent or malformed, and regenerate again if the generated GUID
// collides with the banned set."
func NewCore(cfg *Config, log logger.DebugLogger) (*Core, error) {
	if cfg == nil {
		cfg = DefaultConfig
	}
	if log == nil {
		log = &logger.NullLogger{}
	}

	banned := hostiles.NewBannedGUIDs()
	store := &guid.Store{Path: cfg.GUIDStorePath}

	loaded, ok, err := store.Load()
	if err != nil {
		return nil, err
	}
	var ours guid.GUID
	if ok && !banned.Contains(loaded) {
		ours = loaded
	} else {
		ours, err = guid.New(banned.Contains)
		if err != nil {
			return nil, err
		}
		if err := store.Save(ours, banned.Snapshot()); err != nil {
			return nil, err
		}
	}

	registry := servpeer.NewRegistry()
	hostile := hostiles.NewFilter()
	rtr := router.NewRouter(cfg.Router, registry, banned, hostile, log)

	c := &Core{
		Config:      cfg,
		Log:         log,
		GUID:        ours,
		Store:       store,
		Registry:    registry,
		Router:      rtr,
		Pongs:       pong.NewCache(cfg.Pong, log),
		Queries:     query.NewPipeline(cfg.Query),
		Vmsg:        vmsg.NewDispatcher(),
		Proxies:     NewPushProxyMap(),
		QueryStatus: NewQueryStatusTable(),
		Banned:      banned,
		Hostile:     hostile,
	}
	c.registerVendorHandlers()
	return c, nil
}

// NewQueryHitBuilder returns a qhit.Builder wired to this Core's
// configured size threshold and result cap, invoking onFlush whenever
// a packet is ready to hand to the bandwidth scheduler.
func (c *Core) NewQueryHitBuilder(onFlush func([]byte)) *qhit.Builder {
	return qhit.NewBuilder(c.Config.Qhit, onFlush)
}

// recordPushProxyAck appends ip:port to OurPushProxies, deduplicating
// against an existing entry for the same address and capping the slice
// at Config.Qhit.MaxPushProxies — the same ceiling the trailer encoder
// applies when it reads this slice back out.
func (c *Core) recordPushProxyAck(ip [4]byte, port uint16) {
	addr := qhit.AltLocation{IP: net.IPv4(ip[0], ip[1], ip[2], ip[3]), Port: port}
	for _, existing := range c.OurPushProxies {
		if existing.Port == addr.Port && existing.IP.Equal(addr.IP) {
			return
		}
	}
	max := c.Config.Qhit.MaxPushProxies
	if len(c.OurPushProxies) >= max {
		return
	}
	c.OurPushProxies = append(c.OurPushProxies, addr)
}

// registerVendorHandlers wires the default handling of all seven
// vendor-message kinds (spec.md §4.5) onto the shared Dispatcher: the
// parts that only touch Core-wide state (push-proxy bookkeeping,
// capability negotiation, dynamic-query status bookkeeping) rather
// than a specific outbound reply, which callers still originate
// themselves via the vmsg Encode* helpers.
func (c *Core) registerVendorHandlers() {
	c.Vmsg.Register(vmsg.VendorNull, vmsg.SelMessagesSupported, 0, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		entries, err := vmsg.DecodeMessagesSupported(frame.Payload)
		if err != nil {
			return err
		}
		if sender != nil {
			sender.Caps.LeafGuidedDynamicQuery = vmsg.SupportsLeafGuidedDynamicQuery(entries)
		}
		return nil
	})

	c.Vmsg.Register(vmsg.VendorBEAR, vmsg.SelHopsFlow, 1, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		hops, err := vmsg.DecodeHopsFlow(frame.Payload)
		if err != nil {
			return err
		}
		if sender != nil {
			sender.HopsFlow = &hops
		}
		return nil
	})

	c.Vmsg.Register(vmsg.VendorBEAR, vmsg.SelConnectBack, 1, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		port, err := vmsg.DecodeConnectBack(frame.Payload)
		if err != nil {
			return err
		}
		if sender != nil {
			sender.ConnectBackPort = &port
		}
		return nil
	})

	c.Vmsg.Register(vmsg.VendorLIME, vmsg.SelPushProxyRequest, 1, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		// Empty payload; muid is the requester's own GUID (spec.md §4.5:
		// "record GUID → Peer mapping"). sender is the direct link we
		// received the request on, which is also the route back to the
		// requester for any Push we later proxy on their behalf.
		if sender != nil {
			c.Proxies.Set(muid, sender.Handle)
		}
		return nil
	})

	c.Vmsg.Register(vmsg.VendorLIME, vmsg.SelPushProxyAck, 2, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		ip, port, err := vmsg.DecodePushProxyAck(frame.Payload)
		if err != nil {
			return err
		}
		c.recordPushProxyAck(ip, port)
		return nil
	})

	c.Vmsg.Register(vmsg.VendorBEAR, vmsg.SelQueryStatusRequest, 1, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		// Empty payload; muid is the query id the UP wants a kept-count
		// update for.
		if sender != nil {
			c.QueryStatus.RecordRequest(muid, sender.Handle)
		}
		return nil
	})

	c.Vmsg.Register(vmsg.VendorBEAR, vmsg.SelQueryStatusResponse, 1, func(sender *servpeer.Peer, muid [16]byte, frame vmsg.Frame) error {
		kept, err := vmsg.DecodeQueryStatusResponse(frame.Payload)
		if err != nil {
			return err
		}
		c.QueryStatus.RecordResponse(muid, kept)
		return nil
	})
}
