package appctx

import "errors"

// ErrNoEngine is the panic value of MustFromContext when the context carries
// no engine.
var ErrNoEngine = errors.New("no context engine in scope")
