package queue

// HealthCheck checks if RabbitMQ is available
func (q *QueueService) HealthCheck() string {
	if q == nil {
		return "not configured"
	}

	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}
