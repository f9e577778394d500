package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spachava753/pbap/vcard"
)

func parseFormat(s string) (vcard.Format, error) {
	switch strings.TrimSpace(s) {
	case "", "2.1", "21":
		return vcard.V21, nil
	case "3.0", "30", "3":
		return vcard.V30, nil
	default:
		return 0, fmt.Errorf("invalid vcard format %q (want 2.1 or 3.0)", s)
	}
}

var filterNames = map[string]vcard.Filter{
	"version":  vcard.FilterVersion,
	"fn":       vcard.FilterFN,
	"n":        vcard.FilterN,
	"photo":    vcard.FilterPhoto,
	"bday":     vcard.FilterBirthday,
	"adr":      vcard.FilterAddress,
	"tel":      vcard.FilterTel,
	"email":    vcard.FilterEmail,
	"title":    vcard.FilterTitle,
	"role":     vcard.FilterRole,
	"org":      vcard.FilterOrg,
	"url":      vcard.FilterURL,
	"uid":      vcard.FilterUID,
	"nickname": vcard.FilterNickname,
	"datetime": vcard.FilterCallDatetime,
	"all":      vcard.FilterAll,
}

// parseFilter accepts a hex mask ("0x84") or a comma list of attribute
// names ("tel,email"). Empty selects every attribute.
func parseFilter(s string) (vcard.Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid filter mask %q: %w", s, err)
		}
		return vcard.Filter(v), nil
	}
	var f vcard.Filter
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		bit, ok := filterNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown filter attribute %q", part)
		}
		f |= bit
	}
	return f, nil
}

// folderPath expands a short folder name such as "pb" to /telecom/pb.
func folderPath(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") {
		s = "/telecom/" + s
	}
	return strings.TrimSuffix(s, "/")
}

// objectName expands "pb" or "/telecom/pb" to telecom/pb.vcf.
func objectName(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "/")
	if !strings.HasSuffix(s, ".vcf") {
		s += ".vcf"
	}
	if !strings.HasPrefix(s, "telecom/") {
		s = "telecom/" + s
	}
	return s
}
