package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for extracting
// the session cookies from a logged-in browser.
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("GUMROAD COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	fmt.Println("This tool needs your Gumroad session cookies to read your library.")
	fmt.Println()

	fmt.Println("STEP 1: Log in")
	fmt.Println("   - Go to https://app.gumroad.com/library")
	fmt.Println("   - Log in and make sure your purchases are visible")
	fmt.Println()

	fmt.Println("STEP 2: Open Developer Tools (F12), then the Application/Storage tab")
	fmt.Println("   - Expand 'Cookies' in the sidebar")
	fmt.Println("   - Select https://app.gumroad.com")
	fmt.Println()

	fmt.Println("STEP 3: Copy these cookie values:")
	fmt.Println("   - _gumroad_app_session   (long string, may contain + / =)")
	fmt.Println("   - _gumroad_guid          (short identifier)")
	fmt.Println()

	fmt.Println("TIPS:")
	fmt.Println("   - Copy the entire value, without quotes or semicolons")
	fmt.Println("   - The session cookie expires; refresh it when runs start")
	fmt.Println("     failing with a login redirect")
	fmt.Println()

	fmt.Println("SECURITY WARNING:")
	fmt.Println("   - These cookies give full access to your Gumroad account")
	fmt.Println("   - Never share them; this tool stores them encrypted")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\nQuick guide: F12 -> Application tab -> Cookies -> app.gumroad.com")
	fmt.Println("   Need: _gumroad_app_session=... and _gumroad_guid=...")
}
