package validators

import "go.mongodb.org/mongo-driver/bson"

var deliveryStop = bson.M{
	"bsonType": "object",
	"required": []string{"address"},
	"properties": bson.M{
		"address": bson.M{
			"bsonType":  "string",
			"minLength": 1,
			"maxLength": 500,
		},
		"scheduledTime": bson.M{
			"bsonType": "date",
		},
	},
}

var DeliveryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer",
			"status",
			"pickup",
			"delivery",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"driver": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"vehicle": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"assigned",
					"accepted",
					"started",
					"in-transit",
					"delivered",
					"cancelled",
					"rejected",
				},
			},

			"pickup":   deliveryStop,
			"delivery": deliveryStop,

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
