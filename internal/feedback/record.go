package feedback

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by ParseKind for tags that name no variant.
var ErrUnknownKind = errors.New("unknown feedback kind")

// Kind tags a Record as one of the three feedback variants.
// The tag string is also the "type" value written to the backing file.
type Kind string

const (
	KindReview    Kind = "Review"
	KindRanking   Kind = "Ranking"
	KindComplaint Kind = "Complaint"
)

// Kinds returns every variant in menu order.
func Kinds() []Kind {
	return []Kind{KindReview, KindRanking, KindComplaint}
}

// KindFromTag maps a stored type tag to a variant. Anything that is not
// "Review" or "Ranking" becomes a Complaint, including unknown tags.
func KindFromTag(tag string) Kind {
	switch Kind(tag) {
	case KindReview:
		return KindReview
	case KindRanking:
		return KindRanking
	default:
		return KindComplaint
	}
}

// ParseKind is the strict, case-sensitive counterpart of KindFromTag.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Record is one piece of feedback. It is immutable once constructed.
type Record struct {
	kind    Kind
	company string
	product string
	message string
}

// Entry is the structured form of a Record as persisted in the backing file.
type Entry struct {
	Type    string `json:"type"`
	Company string `json:"company"`
	Product string `json:"product"`
	Message string `json:"message"`
}

func New(kind Kind, company, product, message string) Record {
	return Record{kind: kind, company: company, product: product, message: message}
}

func NewReview(company, product, message string) Record {
	return New(KindReview, company, product, message)
}

// NewRanking builds a Ranking record. The ranking value is kept as text.
func NewRanking(company, product, ranking string) Record {
	return New(KindRanking, company, product, ranking)
}

func NewComplaint(company, product, message string) Record {
	return New(KindComplaint, company, product, message)
}

func (r Record) Kind() Kind { return r.kind }
func (r Record) Company() string { return r.company }
func (r Record) Product() string { return r.product }
func (r Record) Message() string { return r.message }

// StructuredForm returns the Entry written to disk for r.
func (r Record) StructuredForm() Entry {
	return Entry{
		Type:    string(r.kind),
		Company: r.company,
		Product: r.product,
		Message: r.message,
	}
}

// String renders r as a single display line.
func (r Record) String() string {
	return fmt.Sprintf("[%s] %s - %s : %s", r.kind, r.company, r.product, r.message)
}
