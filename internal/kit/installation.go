package kit

// VendorInstallation is the opaque-from-our-perspective record the external
// installation enumerator produces. The core never constructs one; it only
// reads the fields the Vendor SDK Environment Extractor and Vendor Kit
// Builder need.
type VendorInstallation struct {
	InstallationPath    string
	InstallationVersion string // dotted, e.g. "16.11.2"
	InstanceID          string
	DisplayName         string
	ChannelID           string
	ProductDisplayVer   string // catalog.productDisplayVersion
}

// MajorVersion parses the leading dotted component of InstallationVersion.
// Returns -1 if InstallationVersion is empty or malformed.
func (v VendorInstallation) MajorVersion() int {
	major := 0
	sawDigit := false
	for i := 0; i < len(v.InstallationVersion); i++ {
		c := v.InstallationVersion[i]
		if c == '.' {
			break
		}
		if c < '0' || c > '9' {
			return -1
		}
		sawDigit = true
		major = major*10 + int(c-'0')
	}
	if !sawDigit {
		return -1
	}
	return major
}

// DisplayNameFor chooses, in order: DisplayName concatenated with the
// suffix after the last dot of ChannelID (if any), else DisplayName, else
// InstanceID. This is the "vsDisplayName" function of spec.md §4.E.
func (v VendorInstallation) DisplayNameFor() string {
	if v.DisplayName == "" {
		return v.InstanceID
	}
	if v.ChannelID == "" {
		return v.DisplayName
	}
	suffix := lastDotSuffix(v.ChannelID)
	if suffix == "" {
		return v.DisplayName
	}
	return v.DisplayName + " " + suffix
}

func lastDotSuffix(s string) string {
	idx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			idx = i
			break
		}
	}
	if idx == -1 || idx == len(s)-1 {
		return ""
	}
	return s[idx+1:]
}
