package vcard

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// ListingEntry is one card element of a vCard-listing document.
type ListingEntry struct {
	Handle int
	Name   string
}

const (
	listingHeader = `<?xml version="1.0"?>` + "\r\n" +
		`<!DOCTYPE vcard-listing SYSTEM "vcard-listing.dtd">` + "\r\n" +
		`<vCard-listing version="1.0">` + "\r\n"
	listingFooter = "</vCard-listing>\r\n"
)

// MarshalListing renders a PBAP vCard-listing object.
func MarshalListing(entries []ListingEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString(listingHeader)
	for _, e := range entries {
		buf.WriteString(`<card handle = "`)
		buf.WriteString(strconv.Itoa(e.Handle))
		buf.WriteString(`.vcf" name = "`)
		// Writes to a bytes.Buffer never fail.
		_ = xml.EscapeText(&buf, []byte(e.Name))
		buf.WriteString("\"/>\r\n")
	}
	buf.WriteString(listingFooter)
	return buf.Bytes()
}
