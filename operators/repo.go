package operators

// Repo stores operators. Getters return copies and ErrOperatorNotFound when absent.
type Repo interface {
	Upsert(op *Operator) error
	Delete(id string) error
	GetByID(id string) (*Operator, error)
	GetByUsername(username string) (*Operator, error)
	GetByEmail(email string) (*Operator, error)
	List() ([]*Operator, error)
}
