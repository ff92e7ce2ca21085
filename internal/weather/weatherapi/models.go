package weatherapi

// WeatherAPI.com response structures. Only the fields the lookup uses are decoded.

type searchResult struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	URL     string  `json:"url"`
}

type forecastResponse struct {
	Location struct {
		Name    string  `json:"name"`
		Region  string  `json:"region"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	} `json:"location"`
	Current struct {
		TempC      float64   `json:"temp_c"`
		TempF      float64   `json:"temp_f"`
		FeelsLikeC float64   `json:"feelslike_c"`
		FeelsLikeF float64   `json:"feelslike_f"`
		Humidity   int       `json:"humidity"`
		Condition  condition `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []forecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type forecastDay struct {
	Date string `json:"date"`
	Day  struct {
		MaxTempC  float64   `json:"maxtemp_c"`
		MaxTempF  float64   `json:"maxtemp_f"`
		MinTempC  float64   `json:"mintemp_c"`
		MinTempF  float64   `json:"mintemp_f"`
		Condition condition `json:"condition"`
	} `json:"day"`
	Astro struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"astro"`
}

type condition struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}
