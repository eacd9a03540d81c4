package entity

// Outcome is the single terminal result of one target's attempt chain.
// Retriable failures are internal to the fetch executor and never
// appear here: either Document is set, or Err carries the terminal
// failure reason. Attempts is the number of extraction calls consumed.
type Outcome struct {
	Target   CrawlTarget
	Document *Document
	Err      error
	Attempts int
}

// Failed reports whether the attempt chain ended in a terminal failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}
