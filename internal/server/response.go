package server

import (
	"encoding/json"
	"net/http"
)

// noStore prevents token-bearing responses from being cached.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	noStore(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeText(w http.ResponseWriter, status int, message string) {
	noStore(w)
	http.Error(w, message, status)
}

// landing is the front page the callback redirects to.
//
// The page script removes the token parameters from the address bar as soon as it has read them.
func landing(w http.ResponseWriter, _ *http.Request) {
	noStore(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(landingPage))
}

const landingPage = `<!DOCTYPE html>
<html>
<head>
    <title>QR Player</title>
    <meta name="referrer" content="no-referrer">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem; max-width: 40rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0 0 1rem 0; }
        code { display: block; word-break: break-all; background: #eee; padding: 0.5rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1 id="title">QR Player</h1>
        <p id="hint"><a href="/api/login">Log in with Spotify</a></p>
        <code id="token" hidden></code>
    </div>
    <script>
        const url = new URL(window.location.href);
        const token = url.searchParams.get("access_token");
        if (token) {
            const expires = url.searchParams.get("expires_in") || "3600";
            url.searchParams.delete("access_token");
            url.searchParams.delete("expires_in");
            window.history.replaceState({}, "", url.pathname + url.search);
            document.getElementById("title").textContent = "✓ Logged in";
            document.getElementById("hint").textContent = "Paste this into scanplay player:";
            const el = document.getElementById("token");
            el.textContent = "?access_token=" + encodeURIComponent(token) + "&expires_in=" + encodeURIComponent(expires);
            el.hidden = false;
        }
    </script>
</body>
</html>
`
