// Package ranking holds the pure scoring math of the search pipeline:
// tokenization, BM25, cosine similarity with top-K selection and the
// hybrid fusion of vector and lexical scores.
package ranking
