package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activitiesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkup_activities_created_total",
		Help: "Activities created.",
	})
	activitiesJoined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkup_activities_joined_total",
		Help: "Successful activity joins.",
	})
	activitiesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkup_activities_swept_total",
		Help: "Activities transitioned to completed by the expiry sweep.",
	})
	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkup_messages_sent_total",
		Help: "Chat messages sent.",
	})
)
