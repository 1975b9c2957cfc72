package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedIdentifier is returned when an SRF number or challan code does not
// match its expected pattern.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// SRFKind discriminates the two SRF record variants. It is resolved once from the
// identifier prefix and carried explicitly from then on.
type SRFKind int

const (
	KindWarranty SRFKind = iota + 1
	KindOutOfWarranty
)

const (
	PrefixWarranty      = "R"
	PrefixOutOfWarranty = "S"
	PrefixChallan       = "V"

	// NewSRFRequest as the base part ("NEW/1") asks the allocator for a fresh base.
	NewSRFRequest = "NEW"

	MinSubNumber = 1
	MaxSubNumber = 8
	baseDigits   = 5
)

// AllKinds lists the record variants in a stable order.
var AllKinds = []SRFKind{KindWarranty, KindOutOfWarranty}

func (k SRFKind) Prefix() string {
	switch k {
	case KindWarranty:
		return PrefixWarranty
	case KindOutOfWarranty:
		return PrefixOutOfWarranty
	default:
		return ""
	}
}

func (k SRFKind) String() string {
	switch k {
	case KindWarranty:
		return "warranty"
	case KindOutOfWarranty:
		return "out_of_warranty"
	default:
		return "unknown"
	}
}

// TableName is the table holding records of this kind.
func (k SRFKind) TableName() string {
	return k.String()
}

func (k SRFKind) Valid() bool {
	return k == KindWarranty || k == KindOutOfWarranty
}

// KindFromPrefix maps an identifier prefix to its record kind.
func KindFromPrefix(prefix string) (SRFKind, bool) {
	switch strings.ToUpper(prefix) {
	case PrefixWarranty:
		return KindWarranty, true
	case PrefixOutOfWarranty:
		return KindOutOfWarranty, true
	default:
		return 0, false
	}
}

// SRFNumber is a parsed SRF identifier such as R00042/3.
type SRFNumber struct {
	Kind SRFKind
	Base int
	Sub  int
}

func (n SRFNumber) String() string {
	return fmt.Sprintf("%s/%d", n.BaseCode(), n.Sub)
}

// BaseCode renders the family part without the sub-number, e.g. R00042.
func (n SRFNumber) BaseCode() string {
	return FormatBaseCode(n.Kind, n.Base)
}

// FormatBaseCode renders prefix plus zero padded base.
func FormatBaseCode(kind SRFKind, base int) string {
	return fmt.Sprintf("%s%0*d", kind.Prefix(), baseDigits, base)
}

// NewSRFNumber builds a validated identifier.
func NewSRFNumber(kind SRFKind, base, sub int) (SRFNumber, error) {
	if !kind.Valid() {
		return SRFNumber{}, fmt.Errorf("%w: unknown record kind", ErrMalformedIdentifier)
	}
	if base < 1 || base > 99999 {
		return SRFNumber{}, fmt.Errorf("%w: base %d out of range", ErrMalformedIdentifier, base)
	}
	if sub < MinSubNumber || sub > MaxSubNumber {
		return SRFNumber{}, fmt.Errorf("%w: sub-number %d not in [%d,%d]", ErrMalformedIdentifier, sub, MinSubNumber, MaxSubNumber)
	}
	return SRFNumber{Kind: kind, Base: base, Sub: sub}, nil
}

// ParseSRFNumber parses <prefix><5 digits>/<1-8>.
func ParseSRFNumber(s string) (SRFNumber, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return SRFNumber{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}
	kind, ok := KindFromPrefix(s[:1])
	if !ok {
		return SRFNumber{}, fmt.Errorf("%w: unknown prefix in %q", ErrMalformedIdentifier, s)
	}
	basePart, subPart, found := strings.Cut(s[1:], "/")
	if !found || len(basePart) != baseDigits || !isDigits(basePart) || !isDigits(subPart) {
		return SRFNumber{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}
	base, _ := strconv.Atoi(basePart)
	sub, _ := strconv.Atoi(subPart)
	return NewSRFNumber(kind, base, sub)
}

// ParseSRFNumberOfKind parses s and requires it to belong to kind.
func ParseSRFNumberOfKind(s string, kind SRFKind) (SRFNumber, error) {
	n, err := ParseSRFNumber(s)
	if err != nil {
		return SRFNumber{}, err
	}
	if n.Kind != kind {
		return SRFNumber{}, fmt.Errorf("%w: %q is not a %s identifier", ErrMalformedIdentifier, s, kind)
	}
	return n, nil
}

// IsNewRequest reports whether s asks for allocation ("NEW/<sub>"), returning the
// requested sub-number.
func IsNewRequest(s string) (int, bool) {
	head, tail, found := strings.Cut(strings.TrimSpace(s), "/")
	if !strings.EqualFold(head, NewSRFRequest) {
		return 0, false
	}
	if !found {
		return MinSubNumber, true
	}
	sub, err := strconv.Atoi(tail)
	if err != nil {
		return 0, true
	}
	return sub, true
}

// NormalizeSRFNumber expands operator shorthand into a full identifier:
// "42/3" becomes R00042/3 and "42" becomes R00042/1. Full identifiers pass through.
func NormalizeSRFNumber(kind SRFKind, input string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, kind.Prefix())

	basePart, subPart, found := strings.Cut(s, "/")
	if !found {
		subPart = "1"
	}
	if basePart == "" || !isDigits(basePart) || !isDigits(subPart) {
		return "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, input)
	}
	base, _ := strconv.Atoi(basePart)
	sub, _ := strconv.Atoi(subPart)
	n, err := NewSRFNumber(kind, base, sub)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// NextBase scans identifiers of one record type and returns max(base)+1, or 1
// when none match <prefix><digits>/<digits>.
func NextBase(existing []string, prefix string) int {
	maxBase := 0
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		basePart, subPart, found := strings.Cut(rest, "/")
		if !found || !isDigits(basePart) || !isDigits(subPart) {
			continue
		}
		base, err := strconv.Atoi(basePart)
		if err != nil {
			continue
		}
		if base > maxBase {
			maxBase = base
		}
	}
	return maxBase + 1
}

// FormatChallanCode renders a vendor challan code, e.g. V00011.
func FormatChallanCode(seq int) string {
	return fmt.Sprintf("%s%0*d", PrefixChallan, baseDigits, seq)
}

// ChallanSequence extracts the numeric suffix of a challan code.
func ChallanSequence(code string) (int, bool) {
	var digits strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeChallanCode accepts "12", "V12" or "V00012" and returns V00012.
func NormalizeChallanCode(input string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, PrefixChallan)
	if s == "" || !isDigits(s) {
		return "", fmt.Errorf("%w: challan %q", ErrMalformedIdentifier, input)
	}
	n, _ := strconv.Atoi(s)
	if n < 1 {
		return "", fmt.Errorf("%w: challan %q", ErrMalformedIdentifier, input)
	}
	return FormatChallanCode(n), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
