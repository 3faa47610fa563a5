package models

// All returns every model for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&APIKey{},
		&Trip{},
		&TripParticipant{},
		&TrekDay{},
		&Registration{},
		&PaymentTransaction{},
		&Memorial{},
		&PushSubscription{},
	}
}
