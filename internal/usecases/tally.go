package usecases

import (
	"errors"
	"fmt"
)

// errNotAttempted marks recipients the dispatch deadline cut off before
// their send started.
var errNotAttempted = errors.New("not attempted before deadline")

// SendOutcome is the result of one send. A nil Err means delivered to
// the provider.
type SendOutcome struct {
	ContactID string
	Err       error
}

type SendFailure struct {
	ContactID string `json:"contact_id"`
	Reason    string `json:"reason"`
}

// Tally folds outcomes. Order of Add calls does not affect the counts.
type Tally struct {
	Succeeded int
	Failed    int
	Failures  []SendFailure
}

func (t *Tally) Add(o SendOutcome) {
	if o.Err == nil {
		t.Succeeded++
		return
	}
	t.Failed++
	t.Failures = append(t.Failures, SendFailure{ContactID: o.ContactID, Reason: o.Err.Error()})
}

func (t *Tally) Attempted() int { return t.Succeeded + t.Failed }

// Summary is nil when everything succeeded.
func (t *Tally) Summary() *string {
	if t.Failed == 0 {
		return nil
	}
	s := fmt.Sprintf("Failed for %d of %d", t.Failed, t.Attempted())
	return &s
}
