package api

import "time"

// ClientRecord is a dashboard client (the lending operation's customer).
type ClientRecord struct {
	ID             string `json:"id"`
	Names          string `json:"names"`
	FirstLastName  string `json:"firstLastName"`
	SecondLastName string `json:"secondLastName"`
	Email          string `json:"email"`
}

// FullName joins the client's name parts the way the dashboard displays
// them.
func (c ClientRecord) FullName() string {
	name := c.Names + " " + c.FirstLastName
	if c.SecondLastName != "" {
		name += " " + c.SecondLastName
	}
	return name
}

// Loan status values as the API reports them. New-cantity is the status a
// loan takes while a quantity-change request is open.
const (
	StatusApproved       = "Aprobado"
	StatusPostponed      = "Aplazado"
	StatusQuantityChange = "New-cantity"
)

// LoanApplication is a loan record as returned inside search results.
type LoanApplication struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Amount    string    `json:"cantity"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentRecord is a generated proof document for one loan. DownloadCount
// and LastDownloaded change only as a side effect of successful downloads;
// documents are never deleted through this layer.
type DocumentRecord struct {
	ID            string     `json:"id"`
	LoanID        string     `json:"loanId"`
	UploadID      string     `json:"uploadId"`
	PublicURL     string     `json:"publicUrl"`
	DocumentTypes []string   `json:"documentTypes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DownloadCount int        `json:"downloadCount"`
	LastDownloaded *time.Time `json:"lastDownloaded,omitempty"`
}

// LoanData is one row of the paginated loan search: the loan, its owning
// client, and the loan's proof document if one exists.
type LoanData struct {
	User            ClientRecord    `json:"user"`
	Document        DocumentRecord  `json:"document"`
	LoanApplication LoanApplication `json:"loanApplication"`
}

// LoanSearchQuery are the parameters of one paginated, filtered loan fetch.
type LoanSearchQuery struct {
	Status   string
	Page     int
	PageSize int
	Search   string
}

// LoanSearchResult is the server's authoritative answer to a loan search,
// including the pagination metadata the controllers trust over their own
// optimistic state.
type LoanSearchResult struct {
	Success    bool       `json:"success"`
	Data       []LoanData `json:"data"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}

// LoanWithDocuments is a loan joined with its client and generated
// documents, as returned by the loans-with-documents and pending-documents
// endpoints. Read-only from this layer; loans are mutated server-side.
type LoanWithDocuments struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	Status             string           `json:"status"`
	Amount             string           `json:"cantity"`
	CreatedAt          time.Time        `json:"created_at"`
	User               ClientRecord     `json:"user"`
	GeneratedDocuments []DocumentRecord `json:"generatedDocuments"`
}

// PendingDocuments is the set of loans that still lack a generated proof
// document.
type PendingDocuments struct {
	Count int                 `json:"count"`
	Loans []LoanWithDocuments `json:"loans"`
}

// DocumentParams describes one document-type generation request.
type DocumentParams struct {
	DocumentType   string `json:"documentType"`
	Signature      string `json:"signature"`
	NumberDocument string `json:"numberDocument"`
	Name           string `json:"name,omitempty"`
	AutoDownload   bool   `json:"autoDownload,omitempty"`
}

// LoanSummary is the loan context attached to a document view row.
type LoanSummary struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Amount    float64      `json:"amount"`
	CreatedAt time.Time    `json:"created_at"`
	User      ClientRecord `json:"user"`
}

// DocumentWithLoan is one row of the document collection views
// (all / downloaded / never-downloaded).
type DocumentWithLoan struct {
	Document        DocumentRecord `json:"document"`
	LoanApplication LoanSummary    `json:"loanApplication"`
	DownloadCount   int            `json:"downloadCount"`
	LastDownloaded  *time.Time     `json:"lastDownloaded,omitempty"`
}

// DocumentFilter optionally scopes a document view fetch.
type DocumentFilter struct {
	UserID string
	LoanID string
}

// BatchGenerationSummary is the server's report after generating documents
// for every pending loan in one server-driven batch.
type BatchGenerationSummary struct {
	Success   bool   `json:"success"`
	Generated int    `json:"generated"`
	Failed    int    `json:"failed"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ClientPage is one page of the paginated client listing. TotalPages and
// TotalCount are the server's end-of-collection contract; at least one must
// be present for bulk loading to proceed.
type ClientPage struct {
	Users      []ClientRecord `json:"users"`
	TotalPages int            `json:"totalPages,omitempty"`
	TotalCount int            `json:"totalCount,omitempty"`
	Count      int            `json:"count"`
}

// Attachment is a named file payload for a contact email.
type Attachment struct {
	Name string
	Data []byte
}

// AdditionalMessage is one supplementary titled block of an announcement.
type AdditionalMessage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ContactEmail is the payload of one plain contact send to one recipient.
type ContactEmail struct {
	Email         string
	Subject       string
	Message       string
	RecipientName string
	Priority      string
	Files         []Attachment
}

// AnnouncementEmail is the payload of one structured announcement send to
// one recipient.
type AnnouncementEmail struct {
	Email              string
	Subject            string
	Title              string
	Message            string
	RecipientName      string
	Priority           string
	SenderName         string
	AdditionalMessages []AdditionalMessage
	BannerImage        *Attachment
}

// envelope is the generic {success, data, error} wrapper most endpoints use.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
