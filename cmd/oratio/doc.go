// Command oratio runs the retrieval-augmented question-answering
// service: it classifies and expands incoming questions, retrieves
// passages from MongoDB Atlas vector search, and synthesizes grounded
// answers with Azure OpenAI.
package main
