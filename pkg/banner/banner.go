package banner

import "fmt"

const banner = `
 ██████╗ ██████╗ ███╗   ██╗████████╗███████╗██╗  ██╗████████╗██████╗ ██████╗
██╔════╝██╔═══██╗████╗  ██║╚══██╔══╝██╔════╝╚██╗██╔╝╚══██╔══╝██╔══██╗██╔══██╗
██║     ██║   ██║██╔██╗ ██║   ██║   █████╗   ╚███╔╝    ██║   ██║  ██║██████╔╝
██║     ██║   ██║██║╚██╗██║   ██║   ██╔══╝   ██╔██╗    ██║   ██║  ██║██╔══██╗
╚██████╗╚██████╔╝██║ ╚████║   ██║   ███████╗██╔╝ ██╗   ██║   ██████╔╝██████╔╝
 ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝   ╚═╝   ╚══════╝╚═╝  ╚═╝   ╚═╝   ╚═════╝ ╚═════╝
`

// Print writes the startup banner with the effective runtime info.
func Print(addr, dbPath, responderBackend, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("DB Path:   %s\n", dbPath)
	fmt.Printf("Responder: %s\n", responderBackend)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/query - Submit a query (JSON: tenantId, userId, query, userName?)")
	fmt.Println("GET  /v1/history/{tenantId}/{userId} - Fetch chat history")
	fmt.Println("GET  /v1/context/{tenantId}/{userId} - Fetch context summary")
	fmt.Println("POST /v1/generate-context - Regenerate context (JSON: tenantId, userId)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/query' -d '{\"tenantId\":\"acme\",\"userId\":\"u1\",\"query\":\"hello\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/history/acme/u1'\n", addr)
}
