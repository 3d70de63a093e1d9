package dto

import "time"

type CloseIntervalInput struct {
	Subject string
	Start   time.Time
	End     time.Time
}

type CloseIntervalOutput struct {
	Credited   bool
	Subject    string
	Day        string
	Seconds    int64
	TodayTotal int64
}

type SubjectTotalOutput struct {
	Subject string
	Seconds int64
}

type TodayOutput struct {
	Day      string
	Total    int64
	Subjects []SubjectTotalOutput
}

type RecordOutput struct {
	ID      string
	Subject string
	Day     string
	Start   time.Time
	End     time.Time
	Seconds int64
}

type RebuildOutput struct {
	Records int
	Buckets int
}

type DeleteSubjectOutput struct {
	Subject        string
	RemovedSeconds int64
}
