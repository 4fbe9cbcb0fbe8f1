package services

// AnswerSentinelNoContext is the fixed reply the model is instructed to give
// when the supplied context cannot answer the question.
const AnswerSentinelNoContext = "I don't know."

// AnswerSentinelCallFailed is returned to clients when the chat-completion
// call itself fails. The underlying error never reaches the caller.
const AnswerSentinelCallFailed = "The language model call failed."

// SystemPrompt constrains the model to the retrieved context: complete
// answers, verbatim procedures where asked, the fixed sentinel when the
// context is insufficient, and citations by doc_id and page.
const SystemPrompt = "You are a helpful manufacturing documentation assistant. " +
	"Answer the user's question using ALL relevant details from the provided context below. " +
	"Always provide a complete and comprehensive answer, quoting or including full procedures, steps, or lists from the context if the question asks about them. " +
	"If the answer is not in the context, reply: '" + AnswerSentinelNoContext + "' Do NOT use outside knowledge. " +
	"Cite sources by doc_id and page."
