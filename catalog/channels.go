package catalog

const logoBase = "https://images.pexels.com/photos/"

var channels = []*Channel{
	{
		ID:          "aljazeera",
		Name:        "Al Jazeera HD",
		Category:    "news",
		Logo:        logoBase + "6953876/pexels-photo-6953876.jpeg?w=60&h=60&fit=crop",
		Locator:     "https://live-hls-apps-aja-fa.getaj.net/AJA/index.m3u8",
		Quality:     HD,
		Language:    "English",
		Country:     "Qatar",
		Description: "International news channel providing comprehensive coverage of global events with in-depth analysis and breaking news updates.",
		Rating:      8.9,
	},
	{
		ID:          "aljazeera-mubasher",
		Name:        "Al Jazeera Mubasher",
		Category:    "news",
		Logo:        logoBase + "7991889/pexels-photo-7991889.jpeg?w=60&h=60&fit=crop",
		Locator:     "https://live-hls-apps-ajm-fa.getaj.net/AJM/index.m3u8",
		Quality:     HD,
		Language:    "Arabic",
		Country:     "Qatar",
		Description: "Live Arabic news channel offering continuous coverage of Middle Eastern and international affairs.",
		Rating:      8.7,
	},
	{
		ID:          "alquran",
		Name:        "Al Quran TV",
		Category:    "entertainment",
		Logo:        logoBase + "7991740/pexels-photo-7991740.jpeg?w=60&h=60&fit=crop",
		Locator:     "https://ktvlive.online/stream/hls/ch1.m3u8",
		Quality:     HD,
		Language:    "Arabic",
		Country:     "Qatar",
		Description: "Dedicated Islamic channel featuring Quran recitations, religious programs, and spiritual content.",
		Rating:      9.2,
	},
	{
		ID:          "cnn-international",
		Name:        "CNN International",
		Category:    "news",
		Quality:     FHD,
		Language:    "English",
		Country:     "USA",
		Description: "Leading international news network providing 24/7 coverage of global events and breaking news.",
		Rating:      8.5,
	},
	{
		ID:          "bbc-world",
		Name:        "BBC World News",
		Category:    "news",
		Quality:     FHD,
		Language:    "English",
		Country:     "UK",
		Description: "British public service broadcaster delivering trusted news and current affairs programming worldwide.",
		Rating:      9.0,
	},
	{
		ID:          "espn",
		Name:        "ESPN Sports",
		Category:    "sports",
		Quality:     UHD,
		Language:    "English",
		Country:     "USA",
		Description: "Premier sports entertainment network featuring live games, highlights, and sports analysis.",
		Rating:      8.8,
	},
	{
		ID:          "discovery",
		Name:        "Discovery Channel",
		Category:    "entertainment",
		Quality:     UHD,
		Language:    "English",
		Country:     "USA",
		Description: "Educational entertainment channel featuring documentaries about science, nature, and technology.",
		Rating:      9.1,
	},
	{
		ID:          "natgeo",
		Name:        "National Geographic",
		Category:    "entertainment",
		Quality:     UHD,
		Language:    "English",
		Country:     "USA",
		Description: "Premium documentary channel showcasing wildlife, exploration, and scientific discoveries.",
		Rating:      9.3,
	},
	{
		ID:          "mtv",
		Name:        "MTV Music",
		Category:    "music",
		Quality:     HD,
		Language:    "English",
		Country:     "USA",
		Description: "Music television network featuring the latest hits, music videos, and entertainment programming.",
		Rating:      8.2,
	},
	{
		ID:          "cartoon-network",
		Name:        "Cartoon Network",
		Category:    "kids",
		Quality:     HD,
		Language:    "English",
		Country:     "USA",
		Description: "Children's entertainment channel featuring animated series, cartoons, and family-friendly content.",
		Rating:      8.6,
	},
	{
		ID:          "hbo",
		Name:        "HBO Max",
		Category:    "movies",
		Quality:     UHD,
		Language:    "English",
		Country:     "USA",
		Description: "Premium entertainment network featuring blockbuster movies, original series, and exclusive content.",
		Rating:      9.0,
	},
	{
		ID:          "netflix-originals",
		Name:        "Netflix Originals",
		Category:    "movies",
		Quality:     UHD,
		Language:    "English",
		Country:     "USA",
		Description: "Streaming giant's exclusive channel featuring original movies, series, and documentaries.",
		Rating:      8.9,
	},
	{
		ID:          "france24",
		Name:        "France 24",
		Category:    "international",
		Quality:     HD,
		Language:    "French",
		Country:     "France",
		Description: "French international news channel providing European perspective on global events.",
		Rating:      8.3,
	},
	{
		ID:          "dw",
		Name:        "Deutsche Welle",
		Category:    "international",
		Quality:     HD,
		Language:    "German",
		Country:     "Germany",
		Description: "German international broadcaster offering news and cultural programming in multiple languages.",
		Rating:      8.1,
	},
	{
		ID:          "sky-sports-premier",
		Name:        "Sky Sports Premier",
		Category:    "premium",
		Quality:     UHD,
		Language:    "English",
		Country:     "UK",
		Description: "Premium sports channel featuring exclusive coverage of Premier League and major sporting events.",
		Rating:      9.4,
	},
}
