package search

import "github.com/m-mizutani/goerr/v2"

var errEmptyEmbedding = goerr.New("embedding provider returned an empty vector")
