package model

// Display represents a digital display device as stored in the
// `DigitalDisplay` table.  A display is identified by its serial number
// and points at exactly one hardware model through ModelNo.
//
// Fields:
//  SerialNo        – primary key, immutable once created.
//  SchedulerSystem – free text naming the content scheduling system.
//  ModelNo         – foreign key into the Model table.
type Display struct {
    SerialNo        string `json:"serial_no"`        // DigitalDisplay.serialNo
    SchedulerSystem string `json:"scheduler_system"` // DigitalDisplay.schedulerSystem
    ModelNo         string `json:"model_no"`         // DigitalDisplay.modelNo
}
