package vmsg

import (
	"errors"
	"expvar"
	"strconv"
)

var (
	ErrPayloadTooShort = errors.New("vmsg: payload shorter than the fixed fields it must carry")
	ErrUnknownMessage  = errors.New("vmsg: no handler registered for this (vendor, selector) with a covering version")
)

var counters = expvar.NewMap("vmsg_unknown")

func bumpUnknown(vendor VendorCode, selector uint16) {
	counters.Add(string(vendor[:])+"/"+strconv.Itoa(int(selector)), 1)
}
