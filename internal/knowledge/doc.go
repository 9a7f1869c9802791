// Package knowledge holds the regulatory rule base used to ground audits.
//
// Retriever answers top-K similarity queries against a Store. Stores exist
// for Azure AI Search, Postgres with pgvector, Milvus, and an in-process
// memory backend persisted as a JSON snapshot. Indexer splits rule documents
// into overlapping chunks, embeds them, and upserts them into a Store.
package knowledge
