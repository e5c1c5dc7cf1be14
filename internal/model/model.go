package model

// Model describes a hardware model of display as stored in the `Model`
// table.  A model row only lives as long as at least one display
// references it; it is created implicitly when the first display of that
// model is inserted and removed with the last one.
//
// Fields:
//  ModelNo    – primary key.
//  Width      – physical width.
//  Height     – physical height.
//  Weight     – weight of the unit.
//  Depth      – physical depth.
//  ScreenSize – diagonal screen size.
type Model struct {
    ModelNo    string  `json:"model_no"`    // Model.modelNo
    Width      float64 `json:"width"`       // Model.width
    Height     float64 `json:"height"`      // Model.height
    Weight     float64 `json:"weight"`      // Model.weight
    Depth      float64 `json:"depth"`       // Model.depth
    ScreenSize float64 `json:"screen_size"` // Model.screenSize
}
