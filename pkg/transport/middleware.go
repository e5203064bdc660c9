package transport

import "slices"

// Middleware decorates a QueryHandler.
type Middleware func(QueryHandler) QueryHandler

// Chain folds mws into one Middleware. The first element ends up outermost,
// so Chain(a, b)(h) behaves like a(b(h)).
func Chain(mws ...Middleware) Middleware {
	return func(h QueryHandler) QueryHandler {
		for _, mw := range slices.Backward(mws) {
			h = mw(h)
		}
		return h
	}
}
