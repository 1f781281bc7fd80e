package entities

type Money struct {
	Amount   string `bson:"amount"`
	Currency string `bson:"cur"`
}
