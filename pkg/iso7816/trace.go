package iso7816

// TRANSACTION:
// A Transaction is one Command APDU sent by the terminal followed by the Response APDU
// returned by the card (ISO 7816-3).
//
// TRACE:
// A Trace is the chronological sequence of Transactions behind one logical operation.
// Reading a single LDS file already takes several of them: the SELECT, the header read,
// one READ BINARY per chunk, plus any GET RESPONSE (61XX) or corrected retry (6CXX) the
// card asks for. IsSuccess evaluates the final outcome only.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Count returns the number of transactions whose command carries the given instruction.
func (t Trace) Count(ins InsCode) int {
	n := 0
	for _, tx := range t {
		if tx.Command != nil && tx.Command.Instruction.Raw == ins {
			n++
		}
	}
	return n
}
