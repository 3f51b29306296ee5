package main

import (
	"fmt"
	"strings"

	"schwab/pkg/schwab"
)

// parseParams turns k=v arguments into strategy parameters. Values stay
// strings; the builders coerce them.
func parseParams(args []string) (schwab.Params, error) {
	params := schwab.Params{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", arg)
		}
		params[strings.ToLower(k)] = strings.TrimSpace(v)
	}
	return params, nil
}
