// Package memory holds the assistant's long-lived knowledge: short answers
// indexed by keywords and retrieved by how many of those keywords a question
// mentions. The Questions agent answers from it when it runs on the keyword
// rules model.
package memory
