package models

// Supported publishing platforms. Platform is pure data on an account,
// never inferred from an account id.
const (
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformLinkedin  = "linkedin"
)

// ContentLimits holds the maximum post length each platform accepts.
// Content is validated against the smallest limit among the targeted
// platforms so nothing is silently truncated downstream.
var ContentLimits = map[string]int{
	PlatformTwitter:   280,
	PlatformInstagram: 2200,
	PlatformFacebook:  63206,
	PlatformLinkedin:  3000,
}

func IsValidPlatform(platform string) bool {
	_, ok := ContentLimits[platform]
	return ok
}
