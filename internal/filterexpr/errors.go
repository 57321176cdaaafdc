package filterexpr

// SyntaxError reports a filter string the grammar does not recognize.
//
// Filter strings come from clients, so a SyntaxError maps to a bad-request
// response. The message is deliberately generic: parser internals are not
// leaked to callers. Offset records where parsing stopped, for logs.
type SyntaxError struct {
	Offset int
}

func (e *SyntaxError) Error() string {
	return "filter syntax is invalid"
}
