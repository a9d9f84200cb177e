package models

// JobStatus enumerates the lifecycle states of a tracked job.
type JobStatus string

const (
	StatusPending    JobStatus = "Pending"
	StatusInProgress JobStatus = "In Progress"
	StatusCompleted  JobStatus = "Completed"
	StatusOverdue    JobStatus = "Overdue"
	StatusHold       JobStatus = "Hold"
	StatusCancel     JobStatus = "Cancel"
)

// Valid reports whether the status is one of the known values.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue, StatusHold, StatusCancel:
		return true
	}
	return false
}

// CategoryPenyesuaian carries the one automatic status rule: approving a
// job in this category force-completes it.
const CategoryPenyesuaian = "Penyesuaian"

// Job is a unit of tracked work. JobType doubles as the job name, email
// subject or memo description depending on category, mirroring how the
// operations team uses the form.
type Job struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	SubCategory string    `json:"subCategory"`
	DateInput   string    `json:"dateInput"` // YYYY-MM-DD
	BranchDept  string    `json:"branchDept"`
	JobType     string    `json:"jobType"`
	Status      JobStatus `json:"status"`
	Deadline    string    `json:"deadline"`

	ActivationDate string `json:"activationDate,omitempty"`
	Keterangan     string `json:"keterangan,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CreatedBy      string `json:"createdBy,omitempty"`

	// Checklist fields for Penyesuaian.
	IsCabangConfirmed bool `json:"isCabangConfirmed,omitempty"`
	IsDisposition     bool `json:"isDisposition,omitempty"`
	IsApproved        bool `json:"isApproved,omitempty"`

	// Email Masuk.
	PICUser        string `json:"picUser,omitempty"`
	JenisPengajuan string `json:"jenisPengajuan,omitempty"`
	TanggalUpdate  string `json:"tanggalUpdate,omitempty"`
	PICRepd        string `json:"picRepd,omitempty"`

	// Disposisi.
	NoDisposisi     string `json:"noDisposisi,omitempty"`
	Klasifikasi     string `json:"klasifikasi,omitempty"`
	ApproveHeadDept bool   `json:"approveHeadDept,omitempty"`
	ApproveHeadDiv  bool   `json:"approveHeadDiv,omitempty"`
	ApproveRegional bool   `json:"approveRegional,omitempty"`
	ApproveVP       bool   `json:"approveVP,omitempty"`
	ApproveBOD      bool   `json:"approveBOD,omitempty"`
	DocSoftCopy     bool   `json:"docSoftCopy,omitempty"`
	DocLampiran     bool   `json:"docLampiran,omitempty"`
	DocHardCopy     bool   `json:"docHardCopy,omitempty"`

	// Internal Memo.
	NoInternalMemo    string `json:"noInternalMemo,omitempty"`
	LinkAktifasi      string `json:"linkAktifasi,omitempty"`
	HasLinkAktifasi   bool   `json:"hasLinkAktifasi,omitempty"`
	SosialisasiCabang bool   `json:"sosialisasiCabang,omitempty"`
	SosialisasiIT     bool   `json:"sosialisasiIT,omitempty"`
}
