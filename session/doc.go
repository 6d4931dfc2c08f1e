// Package session exposes a multi-object tracker through an explicit handle
// lifecycle: Create, AddObservation, Compute, ObjectCount/GetObject, Destroy.
//
// Failures are reported as *Error values carrying a Kind from a closed set
// (invalid argument, invalid state, out of range, allocation failure).
// The description of the last failure is kept by the session until the next call.
//
// Typical usage:
//
//	err := session.Run(session.AlgorithmByteTrack, session.FlagNone, func(s *session.Session) error {
//		for _, det := range detections {
//			if err := s.AddObservation(det); err != nil {
//				return err
//			}
//		}
//		if err := s.Compute(0.1, 0.7); err != nil {
//			return err
//		}
//		n, _ := s.ObjectCount()
//		for i := 0; i < n; i++ {
//			obj, _ := s.GetObject(i)
//			fmt.Println(obj.ID, obj.Box)
//		}
//		return nil
//	})
package session
