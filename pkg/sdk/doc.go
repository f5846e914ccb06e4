// Package docdex provides a Go client for the docdex HTTP API.
//
// Docdex watches a directory of documents, indexes them for semantic
// retrieval, and answers questions about them with source citations.
// The client covers the full API surface: chats, messages, the document
// inventory, and the health endpoint.
//
//	client, _ := docdex.New("http://localhost:8000")
//	chat, _ := client.Chats().Create(ctx, "Quarterly report")
//	_, _ = client.Messages().Send(ctx, chat.ID, "What were the Q3 numbers?")
//
//	// Answers are produced asynchronously; poll the chat.
//	msgs, _ := client.Messages().ListByChat(ctx, chat.ID)
package docdex
