package postalcode

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
)

func clientReturning(status int, body string, capture *string) *Client {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if capture != nil {
			*capture = req.URL.String()
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	})
	return NewClient(WithBaseURL("http://cep.test/ws/"), WithHTTPClient(&http.Client{Transport: rt}))
}

func TestLookup(t *testing.T) {
	var url string
	client := clientReturning(http.StatusOK, `{
		"cep": "01310-100",
		"logradouro": "Avenida Paulista",
		"complemento": "de 612 a 1510 - lado par",
		"bairro": "Bela Vista",
		"localidade": "São Paulo",
		"uf": "SP"
	}`, &url)

	addr, err := client.Lookup(context.Background(), "01310-100")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if url != "http://cep.test/ws/01310100/json/" {
		t.Fatalf("unexpected URL %q", url)
	}
	if addr.Street != "Avenida Paulista" || addr.City != "São Paulo" || addr.State != "SP" {
		t.Fatalf("unexpected address %+v", addr)
	}
	if addr.PostalCode != "01310100" || addr.Country != "BR" {
		t.Fatalf("unexpected postal code/country %+v", addr)
	}
}

func TestLookupNotFoundForBothErroShapes(t *testing.T) {
	for _, body := range []string{`{"erro": true}`, `{"erro": "true"}`} {
		client := clientReturning(http.StatusOK, body, nil)
		if _, err := client.Lookup(context.Background(), "99999999"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("body %s: expected not found, got %v", body, err)
		}
	}
}

func TestLookupValidation(t *testing.T) {
	called := false
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	})
	client := NewClient(WithHTTPClient(&http.Client{Transport: rt}))
	if _, err := client.Lookup(context.Background(), "1234"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("invalid postal code must not reach the network")
	}
}

func TestLookupUpstreamFailure(t *testing.T) {
	client := clientReturning(http.StatusBadGateway, "bad gateway", nil)
	if _, err := client.Lookup(context.Background(), "01310100"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	badRequest := clientReturning(http.StatusBadRequest, "", nil)
	if _, err := badRequest.Lookup(context.Background(), "01310100"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
