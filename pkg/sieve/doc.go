// Package sieve flags anomalous log records using a trained artifact bundle:
// a one-hot encoder for Hostname and Process, a TF-IDF vectorizer for the
// message text and a binary classifier over both.
//
// Quick start:
//
//	s, err := sieve.New(sieve.WithArtifactDir("artifacts/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	res, err := s.Predict(sieve.Record{
//	    Hostname: "web-01",
//	    Process:  "sshd",
//	    Message:  "Failed password for root from 10.0.0.7",
//	})
//	fmt.Println(res.Anomaly)
//
// A Sieve is safe for concurrent use. Create once, reuse across requests.
package sieve
