package query

import "fmt"

// ValidationError reports a filter attribute set to a value outside its
// allowed set. The builder's state is unchanged when one is returned.
type ValidationError struct {
	Attr   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query: attribute %s is invalid: %s", e.Attr, e.Reason)
}
