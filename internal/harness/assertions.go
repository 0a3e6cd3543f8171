package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type      string     // Assertion type for categorization
	Expected  string     // Human-readable expected outcome
	Actual    string     // Human-readable actual outcome
	Responses []Response // Responses involved, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Responses) > 0 {
		fmt.Fprintf(&buf, "\nResponses:\n")
		for _, r := range e.Responses {
			fmt.Fprintf(&buf, "  %s (%s): count=%d keys=%v\n", r.Request, r.Op, r.Count, r.Keys)
		}
	}

	return buf.String()
}

// assertKeysContain checks that every expected key was returned.
func assertKeysContain(resp Response, assertion Assertion) error {
	present := make(map[string]bool, len(resp.Keys))
	for _, k := range resp.Keys {
		present[k] = true
	}

	var missing []string
	for _, k := range assertion.Keys {
		if !present[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &AssertionError{
		Type:      AssertKeysContain,
		Expected:  fmt.Sprintf("%s returns keys %v", resp.Request, assertion.Keys),
		Actual:    fmt.Sprintf("missing %v", missing),
		Responses: []Response{resp},
	}
}

// assertKeysOrder checks that the expected keys appear in the given order.
// Keys don't need to be consecutive (intervening keys are allowed).
func assertKeysOrder(resp Response, assertion Assertion) error {
	positions := make(map[string]int, len(resp.Keys))
	for i, k := range resp.Keys {
		if _, seen := positions[k]; !seen {
			positions[k] = i + 1 // 1-indexed for readability
		}
	}

	for _, k := range assertion.Keys {
		if positions[k] == 0 {
			return &AssertionError{
				Type:      AssertKeysOrder,
				Expected:  fmt.Sprintf("all keys present: %v", assertion.Keys),
				Actual:    fmt.Sprintf("missing key: %s", k),
				Responses: []Response{resp},
			}
		}
	}

	for i := 1; i < len(assertion.Keys); i++ {
		prev := assertion.Keys[i-1]
		curr := assertion.Keys[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertKeysOrder,
				Expected: fmt.Sprintf("keys in order: %v", assertion.Keys),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Responses: []Response{resp},
			}
		}
	}

	return nil
}

// assertKeyCount checks the number of returned keys.
func assertKeyCount(resp Response, assertion Assertion) error {
	if len(resp.Keys) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:      AssertKeyCount,
		Expected:  fmt.Sprintf("%s returns %d keys", resp.Request, assertion.Count),
		Actual:    fmt.Sprintf("%d keys", len(resp.Keys)),
		Responses: []Response{resp},
	}
}

// assertSamePopulation checks that requests share a filter fingerprint and
// count. Differently written filters for the same population pass.
func assertSamePopulation(resps []Response) error {
	first := resps[0]
	for _, r := range resps[1:] {
		if r.Fingerprint != first.Fingerprint {
			return &AssertionError{
				Type:      AssertSamePopulation,
				Expected:  fmt.Sprintf("%s and %s share a fingerprint", first.Request, r.Request),
				Actual:    fmt.Sprintf("%s != %s", first.Fingerprint, r.Fingerprint),
				Responses: resps,
			}
		}
		if r.Count != first.Count {
			return &AssertionError{
				Type:      AssertSamePopulation,
				Expected:  fmt.Sprintf("%s and %s count the same rows", first.Request, r.Request),
				Actual:    fmt.Sprintf("%d != %d", first.Count, r.Count),
				Responses: resps,
			}
		}
	}
	return nil
}

// assertTotalsEqual checks that requests report the same grand total.
func assertTotalsEqual(resps []Response) error {
	first := resps[0]
	for _, r := range resps[1:] {
		if r.Total != first.Total {
			return &AssertionError{
				Type:      AssertTotalsEqual,
				Expected:  fmt.Sprintf("%s total %+v", r.Request, first.Total),
				Actual:    fmt.Sprintf("%+v", r.Total),
				Responses: resps,
			}
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages. A rejected request fails any assertion naming it.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		names := a.Requests
		if a.Request != "" {
			names = []string{a.Request}
		}

		resps := make([]Response, 0, len(names))
		var lookupErr string
		for _, name := range names {
			resp, ok := result.Response(name)
			switch {
			case !ok:
				lookupErr = fmt.Sprintf("assertion %d (%s): no response for request %q", i, a.Type, name)
			case resp.Error != "":
				lookupErr = fmt.Sprintf("assertion %d (%s): request %q was rejected with %s", i, a.Type, name, resp.Error)
			}
			if lookupErr != "" {
				break
			}
			resps = append(resps, resp)
		}
		if lookupErr == "" && len(resps) == 0 {
			lookupErr = fmt.Sprintf("assertion %d (%s): no request named", i, a.Type)
		}
		if lookupErr != "" {
			errs = append(errs, lookupErr)
			continue
		}

		var err error
		switch a.Type {
		case AssertKeysContain:
			err = assertKeysContain(resps[0], a)
		case AssertKeysOrder:
			err = assertKeysOrder(resps[0], a)
		case AssertKeyCount:
			err = assertKeyCount(resps[0], a)
		case AssertSamePopulation:
			err = assertSamePopulation(resps)
		case AssertTotalsEqual:
			err = assertTotalsEqual(resps)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return errs
}
