package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
)

// Recovery isolates a panicking request handler from the rest of the
// server, adapted from the teacher's middleware.Recovery.
func Recovery(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Printf("PANIC: %v\n%s", err, debug.Stack())
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprintf(w, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
