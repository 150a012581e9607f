package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/users/login":              "/users/login",
		"/goals/all":                "/goals/all",
		"/goals/new":                "/goals/new",
		"/goals/01ARZ3NDEKTSV4RRF":  "/goals/:id",
		"/goals/edit/01ARZ3NDEK":    "/goals/edit/:id",
		"/goals/delete/01ARZ3NDEK":  "/goals/delete/:id",
		"/goals/complete/01ARZ3":    "/goals/complete/:id",
		"/notes/abc?pretty=1":       "/notes/:id",
		"/transactions/delete/xyz":  "/transactions/delete/:id",
		"/goals/edit/abc/extra":     "/goals/edit/abc/extra",
		"/transactions/weird/thing": "/transactions/weird/thing",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
