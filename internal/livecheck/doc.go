// Package livecheck filters domain lists down to domains that serve a
// website. A domain is kept when a GET of http://<domain> answers 200 after
// redirects.
package livecheck
