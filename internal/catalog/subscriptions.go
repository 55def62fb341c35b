package catalog

import "sort"

// Subscribe creates a subscription and increments the publisher's subscriber
// count. Self-subscription is rejected. Duplicate pairs are not; use
// SubscribeOnce to reject them.
func (s *Store) Subscribe(subscriberID, publisherID UserID) (Subscription, error) {
	return s.subscribe(subscriberID, publisherID, false)
}

// SubscribeOnce is Subscribe that fails with ErrConflict when the pair is
// already subscribed. The check and the insert share one critical section.
func (s *Store) SubscribeOnce(subscriberID, publisherID UserID) (Subscription, error) {
	return s.subscribe(subscriberID, publisherID, true)
}

func (s *Store) subscribe(subscriberID, publisherID UserID, unique bool) (Subscription, error) {
	if subscriberID == publisherID {
		return Subscription{}, newServiceError(opSubscribe, reasonSelfSubscribe, ErrInvalidState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[subscriberID]; !ok {
		return Subscription{}, newServiceError(opSubscribe, reasonUserNotFound, ErrNotFound)
	}
	publisher, ok := s.users[publisherID]
	if !ok {
		return Subscription{}, newServiceError(opSubscribe, reasonUserNotFound, ErrNotFound)
	}
	key := subscriptionKey{subscriber: subscriberID, publisher: publisherID}
	if _, exists := s.subscribed[key]; exists && unique {
		return Subscription{}, newServiceError(opSubscribe, reasonSubscribed, ErrConflict)
	}

	subscription := &Subscription{
		ID:           SubscriptionID(s.ids.next(kindSubscription)),
		SubscriberID: subscriberID,
		PublisherID:  publisherID,
		CreatedAt:    s.now(),
	}
	s.subscriptions[subscription.ID] = subscription
	s.subscribed[key] = subscription.ID
	publisher.SubscriberCount++
	return *subscription, nil
}

// Unsubscribe removes every subscription of the pair and decrements the
// publisher's count per removed edge.
func (s *Store) Unsubscribe(subscriberID, publisherID UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscriptionKey{subscriber: subscriberID, publisher: publisherID}
	if _, ok := s.subscribed[key]; !ok {
		return newServiceError(opUnsubscribe, reasonSubscriptionGone, ErrNotFound)
	}
	delete(s.subscribed, key)

	publisher := s.users[publisherID]
	for id, subscription := range s.subscriptions {
		if subscription.SubscriberID != subscriberID || subscription.PublisherID != publisherID {
			continue
		}
		delete(s.subscriptions, id)
		if publisher != nil {
			decrementFloor(&publisher.SubscriberCount)
		}
	}
	return nil
}

// IsSubscribed reports whether the pair already has a subscription.
func (s *Store) IsSubscribed(subscriberID, publisherID UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subscribed[subscriptionKey{subscriber: subscriberID, publisher: publisherID}]
	return ok
}

// ListSubscriptions returns the user's subscriptions newest first.
func (s *Store) ListSubscriptions(subscriberID UserID) []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Subscription, 0)
	for _, subscription := range s.subscriptions {
		if subscription.SubscriberID == subscriberID {
			result = append(result, *subscription)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result
}
