package main

import (
	"sync"
	"testing"
)

func TestApplicationMutexReusedPerApplication(t *testing.T) {
	first := applicationMutex(9001)
	second := applicationMutex(9001)
	other := applicationMutex(9002)

	if first != second {
		t.Fatalf("applicationMutex(9001) expected the same mutex on repeat lookup")
	}
	if first == other {
		t.Fatalf("applicationMutex expected distinct mutexes for distinct applications")
	}
}

func TestApplicationMutexSerializesSameApplication(t *testing.T) {
	const workers = 20
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mutex := applicationMutex(9100)
			mutex.Lock()
			defer mutex.Unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("serialized counter expected %d, got %d", workers, counter)
	}
}
