package main

import (
	"net/http"
	"time"
)

// One shared client bounds every Twitter and HuggingFace request at the
// transport level. The pipeline's classify timeout bounds a whole
// classification call separately; this is the backstop underneath it.
const defaultExternalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// configureExternalHTTP applies the configured transport timeout. Called
// once from main before the first external request.
func configureExternalHTTP(cfg Config) {
	externalHTTPClient.Timeout = time.Duration(cfg.ExternalHTTPTimeoutSeconds) * time.Second
}
