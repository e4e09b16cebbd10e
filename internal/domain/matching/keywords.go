package matching

// Inventory skews heavily toward B2B and enterprise stock, so consumer
// searches are steered by category: push supplier inventory where it is
// strong, and fall back to affiliate links where Amazon clearly wins.

// supplierStrongCategories are categories our supplier inventory covers well
var supplierStrongCategories = map[string][]string{
	"cables":                {"cable", "cord", "adapter", "connector", "extension", "hdmi", "vga", "usb cable"},
	"power":                 {"power supply", "ups", "surge protector", "power cable", "charger", "power cord"},
	"mounting":              {"mount", "bracket", "stand", "rack", "holder", "arm"},
	"networking_enterprise": {"switch", "router enterprise", "access point", "patch panel"},
	"server_parts":          {"server", "raid", "enterprise ssd", "rack mount"},
	"laptop_accessories":    {"laptop power", "laptop cable", "laptop adapter", "notebook power"},
	"monitor_accessories":   {"monitor cable", "monitor stand", "display cable", "monitor mount"},
	"pc_accessories":        {"pc cable", "computer cable", "desktop power", "pc adapter"},
}

// amazonDominantCategories are categories where Amazon is the obvious buy
var amazonDominantCategories = map[string][]string{
	"laptops":        {"laptop", "notebook", "macbook", "thinkpad", "inspiron", "pavilion"},
	"desktops":       {"desktop computer", "gaming pc", "all-in-one", "imac", "optiplex"},
	"monitors":       {"monitor", "display", "4k monitor", "gaming monitor", "ultrawide"},
	"smartphones":    {"iphone", "samsung galaxy", "pixel", "smartphone", "android"},
	"tablets":        {"ipad", "surface pro", "tablet", "kindle fire"},
	"gaming_devices": {"gaming laptop", "gaming desktop", "gaming chair", "gaming headset"},
	"audio_devices":  {"headphones", "earbuds", "speakers", "soundbar", "airpods"},
	"cameras":        {"camera", "dslr", "mirrorless", "gopro", "webcam"},
}

// deviceSearchTerms broadens a device-category search when hunting for demo
// alternatives
var deviceSearchTerms = map[string]string{
	"laptops":        "laptop macbook notebook",
	"desktops":       "desktop computer pc",
	"monitors":       "monitor display screen",
	"gaming_devices": "gaming laptop desktop",
}

// accessoryMapping lists accessory search terms to cross-sell per category
var accessoryMapping = map[string][]string{
	"laptops":        {"laptop power", "laptop cable", "laptop adapter", "notebook power", "laptop charger"},
	"desktops":       {"pc power", "computer cable", "desktop power", "pc adapter"},
	"monitors":       {"monitor cable", "hdmi cable", "vga cable", "display cable", "monitor mount"},
	"gaming_devices": {"gaming cable", "gaming power", "gaming adapter"},
	"smartphones":    {"phone charger", "usb cable", "phone adapter"},
	"tablets":        {"tablet charger", "tablet cable", "tablet adapter"},
}

var defaultAccessoryTerms = []string{"cable", "adapter", "power"}

var laptopContexts = []string{
	"macbook", "laptop", "notebook", "ultrabook", "thinkpad", "dell latitude",
	"hp elitebook", "lenovo", "business laptop", "portable computer",
}

var desktopContexts = []string{
	"desktop", "workstation", "pc", "computer tower", "all-in-one",
}

// accessoryExclusions stop accessory searches from pulling in device demo
// products (a search for "hdmi cable" should never suggest a laptop)
var accessoryExclusions = []string{
	"cable", "cord", "power", "adapter", "charger", "mount", "bracket",
	"stand", "case", "cover", "connector", "extension", "hub", "splitter",
	"hdmi", "usb", "ethernet", "vga", "dvi", "audio", "speaker", "mouse", "keyboard",
}

var laptopDemoTerms = []string{"macbook", "laptop", "notebook", "ultrabook", "elitebook", "latitude"}

var desktopDemoTerms = []string{"desktop", "workstation", "pc", "tower"}

var consumerIndicators = []string{
	"hp", "dell", "lenovo", "asus", "acer", "microsoft", "apple", "intel", "amd",
	"gaming", "laptop", "desktop", "notebook", "monitor", "display",
}

// alternativeIndicators name terms a product must carry to count as a true
// competing alternative for the category
var alternativeIndicators = map[string][]string{
	"laptops":        {"laptop", "notebook", "macbook", "thinkpad", "inspiron", "pavilion", "ultrabook", "elitebook", "latitude", "xps"},
	"desktops":       {"desktop", "pc", "workstation", "computer", "imac", "optiplex", "all-in-one"},
	"monitors":       {"monitor", "display", "screen"},
	"gaming_devices": {"gaming laptop", "gaming desktop", "gaming pc"},
}

// accessoryIndicators disqualify a product from being an alternative
var accessoryIndicators = []string{
	"cable", "cord", "power", "adapter", "charger", "mount", "bracket",
	"stand", "case", "cover", "connector", "extension", "hub", "splitter",
}

// accessoryKeywords identify accessory products in search results
var accessoryKeywords = []string{
	"cable", "cord", "adapter", "charger", "power supply", "mount", "bracket",
	"stand", "case", "cover", "connector", "extension", "hub", "splitter",
}

var searchStopWords = map[string]bool{
	"the": true, "and": true, "or": true, "for": true, "with": true,
	"by": true, "in": true, "on": true, "at": true, "a": true, "an": true,
}
