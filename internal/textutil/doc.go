// Package textutil provides text helpers shared by the knowledge base and
// reporting code.
//
// TermVectors are TF-IDF bags of words used for lexical ranking when a
// knowledge store has no embeddings. Tokens are lowercased runs of letters
// and digits at least three runes long, minus common English stopwords.
package textutil
