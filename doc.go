// Package edgesession keeps session state for stateless HTTP handlers.
//
// The client only holds a signed session id in the "__Host-session" cookie.
// Values live in a Store under "data:<id>:<label>" for regular values and
// "flash:<id>:<label>" for flash values, which are removed by the first read.
//
//	store := edgesession.NewMemoryStore()
//	sessions, err := edgesession.New(os.Getenv("SESSION_SECRET"), store)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		jar := edgesession.NewHTTPCookies(w, r)
//		_ = sessions.Commit(r.Context(), jar, "cart", []string{"apple"})
//		_ = sessions.CommitFlash(r.Context(), jar, "notice", "added to cart")
//	}
//
// A missing, forged or corrupted cookie is treated as no session. Store
// errors are always returned and match ErrStore.
package edgesession
