package aladhan

// CalendarResponse is the Al Adhan calendar API response: one Data per day
// of the requested month.
type CalendarResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   []Data `json:"data"`
}

// Data holds one day's timings, date info and metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings holds the five adhan times as "HH:MM", possibly followed by a
// zone suffix such as " (NZDT)". The other events the API returns are ignored.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string        `json:"readable"`
	Timestamp string        `json:"timestamp"`
	Gregorian GregorianDate `json:"gregorian"`
}

// GregorianDate represents the Gregorian date from the API response.
type GregorianDate struct {
	Date string `json:"date"` // e.g. "29-12-2022"
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Timezone string     `json:"timezone"`
	Method   MethodInfo `json:"method"`
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
