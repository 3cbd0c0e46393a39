package rank

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithTopK sets how many candidates each query keeps.
func WithTopK(k int) Option {
	return func(r *Ranker) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithWorkers sets the number of concurrent ranking workers.
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}
