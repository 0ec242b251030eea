package llm

import (
	"fmt"
	"strings"
)

// SystemGeneral is the default system message for ungrounded calls.
const SystemGeneral = "You are a helpful AI assistant for educational purposes. " +
	"Provide clear, accurate, and educational responses."

// SystemGrounded instructs the model to stay within retrieved context.
const SystemGrounded = "You are a helpful educational assistant. Answer the " +
	"question using the provided context. If the context does not contain " +
	"the answer, say so instead of guessing."

// GroundedRequest builds a generation request from retrieved chunk texts,
// in gate-selected order, and the user's question.
func GroundedRequest(question string, contextTexts []string) Request {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(contextTexts, "\n"))
	fmt.Fprintf(&b, "\n\nQuestion: %s\nAnswer:", question)

	return Request{
		Prompt:        b.String(),
		SystemMessage: SystemGrounded,
		MaxTokens:     1024,
	}
}

// UngroundedRequest builds a generation request for the question alone.
func UngroundedRequest(question string) Request {
	return Request{
		Prompt:        question,
		SystemMessage: SystemGeneral,
	}
}
