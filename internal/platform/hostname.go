package platform

import "fmt"

// BlogHostname generates the platform hostname for a blog subdomain.
// Example: coffee-corner.faceblog.app
func BlogHostname(baseDomain, subdomain string) string {
	return fmt.Sprintf("%s.%s", subdomain, baseDomain)
}
