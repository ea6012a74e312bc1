package relay_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/inkwell-web/inkwell/internal/webapp/relay"
)

type echoPayload struct {
	Message string `json:"message"`
}

var _ = Describe("Exchange", func() {
	var (
		upstream *httptest.Server
		client   *relay.Client
		metrics  *relay.Metrics

		// captured by the upstream handler
		seenCookies []*http.Cookie
		seenBody    []byte

		respond func(w http.ResponseWriter, r *http.Request)
	)

	BeforeEach(func() {
		seenCookies = nil
		seenBody = nil
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(echoPayload{Message: "ok"})
		}

		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenCookies = r.Cookies()
			seenBody, _ = io.ReadAll(r.Body)
			respond(w, r)
		}))

		metrics = relay.NewMetrics()
		var err error
		client, err = relay.NewClient(upstream.URL, time.Second, metrics)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		upstream.Close()
	})

	exchange := func(cookies ...*http.Cookie) (*relay.Exchange, *httptest.ResponseRecorder) {
		browserReq := httptest.NewRequest(http.MethodGet, "/articles", nil)
		for _, c := range cookies {
			browserReq.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		return client.Bind(rec, browserReq), rec
	}

	Describe("constructor", func() {
		It("rejects an empty base URL", func() {
			_, err := relay.NewClient("  ", time.Second, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("cookie forwarding", func() {
		It("forwards every browser cookie to the API verbatim", func() {
			ex, _ := exchange(
				&http.Cookie{Name: "inkwell_session", Value: "token-123"},
				&http.Cookie{Name: "unrelated", Value: "keep-me"},
			)

			var out echoPayload
			Expect(ex.Get("/api/v1/articles", &out)).To(Succeed())

			Expect(seenCookies).To(HaveLen(2))
			values := map[string]string{}
			for _, c := range seenCookies {
				values[c.Name] = c.Value
			}
			Expect(values).To(HaveKeyWithValue("inkwell_session", "token-123"))
			Expect(values).To(HaveKeyWithValue("unrelated", "keep-me"))
		})

		It("repeated GETs leave upstream state untouched between calls", func() {
			ex, _ := exchange(&http.Cookie{Name: "inkwell_session", Value: "token-123"})

			var first, second echoPayload
			Expect(ex.Get("/api/v1/articles", &first)).To(Succeed())
			Expect(ex.Get("/api/v1/articles", &second)).To(Succeed())
			Expect(first).To(Equal(second))
		})
	})

	Describe("cookie mirroring", func() {
		It("mirrors upstream Set-Cookie headers with hardened attributes", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				http.SetCookie(w, &http.Cookie{Name: "inkwell_session", Value: "fresh-token"})
				w.WriteHeader(http.StatusOK)
			}

			ex, rec := exchange()
			Expect(ex.Get("/api/v1/auth/login", nil)).To(Succeed())

			cookies := rec.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			c := cookies[0]
			Expect(c.Name).To(Equal("inkwell_session"))
			Expect(c.Value).To(Equal("fresh-token"))
			Expect(c.HttpOnly).To(BeTrue())
			Expect(c.Secure).To(BeTrue())
			Expect(c.SameSite).To(Equal(http.SameSiteStrictMode))
			Expect(c.Expires).To(BeTemporally("~", time.Now().Add(relay.CookieLifetime), time.Minute))
		})

		It("mirrors cookies even when the upstream call fails", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				http.SetCookie(w, &http.Cookie{Name: "inkwell_session", Value: "still-set"})
				w.WriteHeader(http.StatusUnauthorized)
			}

			ex, rec := exchange()
			err := ex.Get("/api/v1/users/me", nil)
			Expect(err).To(HaveOccurred())
			Expect(rec.Result().Cookies()).To(HaveLen(1))
		})

		It("preserves upstream cookie deletions", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				http.SetCookie(w, &http.Cookie{Name: "inkwell_session", Value: "", MaxAge: -1})
				w.WriteHeader(http.StatusOK)
			}

			ex, rec := exchange()
			Expect(ex.Post("/api/v1/auth/logout", nil, nil)).To(Succeed())

			cookies := rec.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].MaxAge).To(BeNumerically("<", 0))
		})
	})

	Describe("error handling", func() {
		It("returns a typed error with status and body for non-2xx responses", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"errors":["article not found"]}`))
			}

			ex, _ := exchange()
			var out echoPayload
			err := ex.Get("/api/v1/articles/999", &out)

			var apiErr *relay.Error
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*relay.Error)
			Expect(apiErr.StatusCode).To(Equal(http.StatusNotFound))
			Expect(apiErr.Body).To(ContainSubstring("article not found"))
		})

		It("treats an empty success body as the zero value, not an error", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}

			ex, _ := exchange()
			var out echoPayload
			Expect(ex.Get("/api/v1/articles", &out)).To(Succeed())
			Expect(out.Message).To(BeEmpty())
		})

		It("decodes JSON case-insensitively", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"MESSAGE":"shouted"}`))
			}

			ex, _ := exchange()
			var out echoPayload
			Expect(ex.Get("/api/v1/articles", &out)).To(Succeed())
			Expect(out.Message).To(Equal("shouted"))
		})
	})

	Describe("Delete", func() {
		It("reports true on success", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}

			ex, _ := exchange()
			ok, err := ex.Delete("/api/v1/articles/1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("reports false with the typed error on failure", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}

			ex, _ := exchange()
			ok, err := ex.Delete("/api/v1/articles/1")
			Expect(ok).To(BeFalse())
			var apiErr *relay.Error
			Expect(err).To(BeAssignableToTypeOf(apiErr))
		})
	})

	Describe("metrics", func() {
		It("counts calls by method and outcome", func() {
			ex, _ := exchange()
			Expect(ex.Get("/api/v1/articles", nil)).To(Succeed())

			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}
			_ = ex.Get("/api/v1/articles", nil)

			families, err := metrics.Gather()
			Expect(err).NotTo(HaveOccurred())

			counts := map[string]float64{}
			for _, fam := range families {
				if fam.GetName() != "inkwell_relay_calls_total" {
					continue
				}
				for _, m := range fam.GetMetric() {
					var method, outcome string
					for _, l := range m.GetLabel() {
						switch l.GetName() {
						case "method":
							method = l.GetValue()
						case "outcome":
							outcome = l.GetValue()
						}
					}
					counts[method+"/"+outcome] = m.GetCounter().GetValue()
				}
			}

			Expect(counts).To(HaveKeyWithValue("GET/success", 1.0))
			Expect(counts).To(HaveKeyWithValue("GET/upstream_error", 1.0))
		})
	})

	Describe("request bodies", func() {
		It("sends JSON with the content type set", func() {
			var seenContentType string
			respond = func(w http.ResponseWriter, r *http.Request) {
				seenContentType = r.Header.Get("Content-Type")
				w.WriteHeader(http.StatusCreated)
			}

			ex, _ := exchange()
			Expect(ex.Post("/api/v1/articles", echoPayload{Message: "hi"}, nil)).To(Succeed())
			Expect(seenContentType).To(Equal("application/json"))
			Expect(string(seenBody)).To(ContainSubstring(`"message":"hi"`))
		})
	})
})
